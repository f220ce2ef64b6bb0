// Package gocspi is the root package of the Go accessibility client binding.
// It re-exports the types most programs need and connects to a provider
// configured through the environment.
package gocspi

import (
	"context"

	"github.com/ifabos/go-cspi/config"
	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/spi"
)

// Connect loads .env files, reads the CSPI_* variables and connects to the
// provider they name.
func Connect(ctx context.Context, opts ...spi.Option) (*spi.Session, error) {
	config.LoadEnv(nil)
	return spi.Connect(ctx, spi.ConfigFromEnv(), opts...)
}

// Init initializes and returns a new ORB
func Init(opts ...corba.Option) *corba.ORB {
	return corba.Init(opts...)
}

// RoleName returns the display name table entry for role
func RoleName(role spi.Role) string {
	return spi.RoleName(role)
}

// Re-export important types from the spi and corba packages
type (
	ORB       = corba.ORB
	ObjectRef = corba.ObjectRef

	Session    = spi.Session
	Registry   = spi.Registry
	Object     = spi.Object
	Accessible = spi.Accessible
	Role       = spi.Role
	Capability = spi.Capability
	CallError  = spi.CallError

	Component    = spi.Component
	Text         = spi.Text
	EditableText = spi.EditableText
	Table        = spi.Table
	Selection    = spi.Selection
	Action       = spi.Action
	Value        = spi.Value
	Hypertext    = spi.Hypertext
	Image        = spi.Image
	Relation     = spi.Relation
	StateSet     = spi.StateSet
)

// Re-export capabilities
const (
	CapabilityAction       = spi.CapabilityAction
	CapabilityComponent    = spi.CapabilityComponent
	CapabilityEditableText = spi.CapabilityEditableText
	CapabilityHypertext    = spi.CapabilityHypertext
	CapabilityImage        = spi.CapabilityImage
	CapabilitySelection    = spi.CapabilitySelection
	CapabilityTable        = spi.CapabilityTable
	CapabilityText         = spi.CapabilityText
	CapabilityValue        = spi.CapabilityValue
)
