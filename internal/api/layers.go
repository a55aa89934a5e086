package api

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mixnode/internal/api/models"
	"github.com/smazurov/mixnode/internal/layers"
)

// registerLayerRoutes sets up the layer management endpoints.
func (s *Server) registerLayerRoutes() {
	// List all layers
	huma.Register(s.api, huma.Operation{
		OperationID: "list-layers",
		Method:      http.MethodGet,
		Path:        "/api/layers",
		Summary:     "List Layers",
		Description: "List all configured composition layers",
		Tags:        []string{"layers"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.LayerListResponse, error) {
		specs := s.layerService.List()
		list := make([]models.LayerData, 0, len(specs))
		for _, spec := range specs {
			list = append(list, layerToModel(spec))
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].ZOrder != list[j].ZOrder {
				return list[i].ZOrder < list[j].ZOrder
			}
			return list[i].ID < list[j].ID
		})
		return &models.LayerListResponse{
			Body: models.LayerListData{Layers: list, Count: len(list)},
		}, nil
	})

	// Get a single layer
	huma.Register(s.api, huma.Operation{
		OperationID: "get-layer",
		Method:      http.MethodGet,
		Path:        "/api/layers/{id}",
		Summary:     "Get Layer",
		Description: "Get one layer by ID",
		Tags:        []string{"layers"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" doc:"Layer identifier"`
	}) (*models.LayerResponse, error) {
		spec, ok := s.layerService.Get(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("Layer not found: " + input.ID)
		}
		return &models.LayerResponse{Body: layerToModel(spec)}, nil
	})

	// Create a layer
	huma.Register(s.api, huma.Operation{
		OperationID:   "create-layer",
		Method:        http.MethodPost,
		Path:          "/api/layers/{id}",
		Summary:       "Create Layer",
		Description:   "Create a new composition layer and start it if enabled",
		Tags:          []string{"layers"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{400, 401, 409},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id" doc:"Layer identifier"`
		Body models.LayerRequestData
	}) (*models.LayerResponse, error) {
		spec := modelToLayer(input.ID, input.Body)
		if err := s.layerService.Create(spec); err != nil {
			if errors.Is(err, layers.ErrLayerExists) {
				return nil, huma.Error409Conflict("Layer already exists: " + input.ID)
			}
			return nil, huma.Error400BadRequest("Failed to create layer", err)
		}
		created, _ := s.layerService.Get(input.ID)
		return &models.LayerResponse{Body: layerToModel(created)}, nil
	})

	// Update a layer
	huma.Register(s.api, huma.Operation{
		OperationID: "update-layer",
		Method:      http.MethodPut,
		Path:        "/api/layers/{id}",
		Summary:     "Update Layer",
		Description: "Replace a layer's definition. Placement changes apply live; stream changes restart the layer.",
		Tags:        []string{"layers"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id" doc:"Layer identifier"`
		Body models.LayerRequestData
	}) (*models.LayerResponse, error) {
		spec := modelToLayer(input.ID, input.Body)
		if err := s.layerService.Update(input.ID, spec); err != nil {
			if errors.Is(err, layers.ErrLayerNotFound) {
				return nil, huma.Error404NotFound("Layer not found: " + input.ID)
			}
			return nil, huma.Error400BadRequest("Failed to update layer", err)
		}
		updated, _ := s.layerService.Get(input.ID)
		return &models.LayerResponse{Body: layerToModel(updated)}, nil
	})

	// Delete a layer
	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-layer",
		Method:        http.MethodDelete,
		Path:          "/api/layers/{id}",
		Summary:       "Delete Layer",
		Description:   "Stop and remove a layer",
		Tags:          []string{"layers"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 404},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" doc:"Layer identifier"`
	}) (*struct{}, error) {
		if err := s.layerService.Delete(input.ID); err != nil {
			if errors.Is(err, layers.ErrLayerNotFound) {
				return nil, huma.Error404NotFound("Layer not found: " + input.ID)
			}
			return nil, huma.Error400BadRequest("Failed to delete layer", err)
		}
		return nil, nil
	})
}

func layerToModel(spec layers.LayerSpec) models.LayerData {
	return models.LayerData{
		ID:        spec.ID,
		Name:      spec.Name,
		Pattern:   spec.Pattern,
		Format:    spec.Format,
		Width:     spec.Width,
		Height:    spec.Height,
		FPS:       spec.FPS,
		XPos:      spec.XPos,
		YPos:      spec.YPos,
		ZOrder:    spec.ZOrder,
		Alpha:     spec.Alpha,
		SolidY:    spec.SolidY,
		SolidU:    spec.SolidU,
		SolidV:    spec.SolidV,
		Enabled:   spec.Enabled,
		CreatedAt: spec.CreatedAt,
		UpdatedAt: spec.UpdatedAt,
	}
}

func modelToLayer(id string, body models.LayerRequestData) layers.LayerSpec {
	return layers.LayerSpec{
		ID:      id,
		Name:    body.Name,
		Pattern: body.Pattern,
		Format:  body.Format,
		Width:   body.Width,
		Height:  body.Height,
		FPS:     body.FPS,
		XPos:    body.XPos,
		YPos:    body.YPos,
		ZOrder:  body.ZOrder,
		Alpha:   body.Alpha,
		SolidY:  body.SolidY,
		SolidU:  body.SolidU,
		SolidV:  body.SolidV,
		Enabled: body.Enabled,
	}
}
