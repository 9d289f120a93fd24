package constants

// Status is the outcome tag carried by every stage result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Route is the extraction method chosen for one PDF page.
type Route string

const (
	RouteText         Route = "text"
	RouteVision       Route = "vision"
	RouteTextFallback Route = "text_fallback"
)

// Badge is the tri-level trust indicator on a mapped ingredient.
type Badge string

const (
	BadgeGreen  Badge = "green"
	BadgeYellow Badge = "yellow"
	BadgeRed    Badge = "red"
)
