package epub

import (
	"encoding/base64"
	"log/slog"
	"path"
	"strings"
)

// findCover locates the cover image with three ordered strategies:
//
//  1. the manifest id named by <meta name="cover">,
//  2. a manifest item whose properties include "cover-image",
//  3. a manifest item whose id contains "cover" with an image media type.
//
// Each strategy's resolution failure falls through to the next; exhausting
// them all yields an empty string, which is not an error.
func findCover(ar *Archive, p *Package, log *slog.Logger) string {
	if p.MetaCoverID != "" {
		if item, ok := p.Manifest[p.MetaCoverID]; ok {
			if uri := loadCover(ar, item); uri != "" {
				return uri
			}
			log.Debug("metadata cover did not resolve", "id", p.MetaCoverID)
		}
	}

	for _, item := range p.Items {
		if item.hasProperty("cover-image") {
			if uri := loadCover(ar, item); uri != "" {
				return uri
			}
			log.Debug("cover-image item did not resolve", "id", item.ID)
			break
		}
	}

	for _, item := range p.Items {
		if strings.Contains(strings.ToLower(item.ID), "cover") &&
			strings.HasPrefix(strings.ToLower(item.MediaType), "image/") {
			if uri := loadCover(ar, item); uri != "" {
				return uri
			}
			log.Debug("cover-named item did not resolve", "id", item.ID)
			break
		}
	}

	return ""
}

// loadCover reads a manifest item's bytes and encodes them as a data URI.
// Returns "" when the item has no href or its entry cannot be read.
func loadCover(ar *Archive, item ManifestEntry) string {
	if item.Href == "" {
		return ""
	}
	data, err := ar.ReadEntry(item.Path)
	if err != nil {
		return ""
	}

	mime := "image/jpeg"
	if strings.EqualFold(path.Ext(item.Path), ".png") {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
