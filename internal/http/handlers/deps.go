package handlers

import (
	"context"

	"marktplatz/internal/config"
	"marktplatz/internal/dashboard"
	"marktplatz/internal/photos"
	"marktplatz/internal/vision"
)

// ImageAnalyzer reads product hints off a base64 encoded photo.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, base64Image, mediaType string) (vision.Hints, error)
}

type Deps struct {
	DashboardHandler *DashboardHandler
	OfferHandler     *OfferHandler
	CategoryHandler  *CategoryHandler
	APIHandler       *APIHandler
}

// NewDeps wires the page handlers around one controller. store may be nil, which
// disables photo uploads.
func NewDeps(cfg config.Config, ctl *dashboard.Controller, analyzer ImageAnalyzer, store photos.Store) *Deps {
	return &Deps{
		DashboardHandler: &DashboardHandler{Ctl: ctl},
		OfferHandler:     &OfferHandler{Ctl: ctl, Analyzer: analyzer, Photos: store, MaxPhotoBytes: cfg.MaxUploadBytes},
		CategoryHandler:  &CategoryHandler{Ctl: ctl},
		APIHandler:       &APIHandler{Ctl: ctl},
	}
}
