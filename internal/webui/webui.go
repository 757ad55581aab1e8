// Package webui serves a small HTML status page and a plain-text network
// dump for operators.
package webui

import "gaugelink.hydrology.org/internal/app"

type WebUI struct {
	*app.Application
}
