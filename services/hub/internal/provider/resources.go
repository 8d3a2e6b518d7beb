// Package provider brings up the board resources behind each hub port.
package provider

import "serialhub-go/services/hub/internal/provider/setups"

// SelectedPlan is the wiring used by Open when the caller passes none.
var SelectedPlan = setups.PicoSerialHub
