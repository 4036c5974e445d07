// Package ingest decodes query documents and dispatches their requests
// against an engine: all base requests in order, then all stat requests, each
// stat answer echoing its request id.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/citybus/citybus_core/internal/catalog"
	"github.com/citybus/citybus_core/internal/engine"
	"github.com/citybus/citybus_core/internal/geo"
	"github.com/citybus/citybus_core/internal/models"
)

// Document is a self-contained batch of network mutations and queries.
type Document struct {
	RoutingSettings *RoutingSettings     `json:"routing_settings"`
	BaseRequests    []models.BaseRequest `json:"base_requests"`
	StatRequests    []models.StatRequest `json:"stat_requests"`
}

// RoutingSettings is the document form of the network-wide parameters.
type RoutingSettings struct {
	BusVelocity float64 `json:"bus_velocity"`  // km/h
	BusWaitTime float64 `json:"bus_wait_time"` // minutes
}

// Decode reads a query document from JSON.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode query document: %w", err)
	}
	return doc, nil
}

// Settings resolves the document's routing settings, falling back to the
// given defaults when the document carries none.
func (d Document) Settings(fallback models.Settings) models.Settings {
	if d.RoutingSettings == nil {
		return fallback
	}
	return models.Settings{
		VelocityKMH: d.RoutingSettings.BusVelocity,
		WaitTimeMin: d.RoutingSettings.BusWaitTime,
	}
}

// Response payloads. Each stat answer is one of these; failures use
// errorResponse with the single wire message "not found".

type lineResponse struct {
	RequestID int64 `json:"request_id"`
	models.LineInfo
}

type stopResponse struct {
	RequestID int64 `json:"request_id"`
	models.StopInfo
}

type routeResponse struct {
	RequestID int64 `json:"request_id"`
	models.RouteInfo
}

type errorResponse struct {
	RequestID    int64  `json:"request_id"`
	ErrorMessage string `json:"error_message"`
}

// Apply runs the document's base requests against the engine, in order.
func Apply(doc Document, eng *engine.Engine) error {
	for _, req := range doc.BaseRequests {
		switch req.Type {
		case models.RequestStop:
			place := geo.Coordinates{Lat: req.Latitude, Lon: req.Longitude}
			if err := eng.AddStop(req.Name, place, req.RoadDistances); err != nil {
				return fmt.Errorf("failed to add stop %q: %w", req.Name, err)
			}
		case models.RequestBus:
			kind := catalog.Linear
			if req.IsRoundtrip {
				kind = catalog.Circular
			}
			if err := eng.AddLine(req.Name, req.Stops, kind); err != nil {
				return fmt.Errorf("failed to add line %q: %w", req.Name, err)
			}
		default:
			return fmt.Errorf("unknown base request type %q", req.Type)
		}
	}
	return nil
}

// Answer resolves a single stat request to its response payload.
func Answer(req models.StatRequest, eng *engine.Engine) (interface{}, error) {
	switch req.Type {
	case models.RequestBus:
		info, err := eng.InfoForLine(req.Name)
		if errors.Is(err, engine.ErrNotFound) {
			return errorResponse{RequestID: req.ID, ErrorMessage: err.Error()}, nil
		}
		if err != nil {
			return nil, err
		}
		return lineResponse{RequestID: req.ID, LineInfo: info}, nil

	case models.RequestStop:
		info, err := eng.InfoForStop(req.Name)
		if errors.Is(err, engine.ErrNotFound) {
			return errorResponse{RequestID: req.ID, ErrorMessage: err.Error()}, nil
		}
		if err != nil {
			return nil, err
		}
		return stopResponse{RequestID: req.ID, StopInfo: info}, nil

	case models.RequestRoute:
		info, err := eng.InfoForRoute(req.From, req.To)
		if errors.Is(err, engine.ErrNotFound) {
			return errorResponse{RequestID: req.ID, ErrorMessage: err.Error()}, nil
		}
		if err != nil {
			return nil, err
		}
		return routeResponse{RequestID: req.ID, RouteInfo: info}, nil

	default:
		return nil, fmt.Errorf("unknown stat request type %q", req.Type)
	}
}

// Process builds a fresh engine from the document's settings (with fallback),
// applies its mutations and answers its queries. The responses marshal to the
// wire array the caller emits.
func Process(doc Document, fallback models.Settings) ([]interface{}, error) {
	eng := engine.New(doc.Settings(fallback))
	if err := Apply(doc, eng); err != nil {
		return nil, err
	}

	responses := make([]interface{}, 0, len(doc.StatRequests))
	for _, req := range doc.StatRequests {
		resp, err := Answer(req, eng)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
