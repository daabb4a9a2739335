package entity

import "errors"

var (
	ErrLeadNotFound         = errors.New("lead not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNotConfigured = errors.New("product not configured")
	ErrInstanceNotFound     = errors.New("instance not found")
	ErrLeadFinalized        = errors.New("lead is in a terminal status")
	ErrInvalidTransition    = errors.New("invalid lead status transition")
	ErrActiveLeadExists     = errors.New("active lead already exists")
)
