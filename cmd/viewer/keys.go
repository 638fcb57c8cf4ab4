package main

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
)

// keyBindings maps key presses onto session actions.
type keyBindings struct {
	s   viewer.Session
	log logger.Logger
}

func newKeyBindings(s viewer.Session, log logger.Logger) *keyBindings {
	return &keyBindings{s: s, log: log}
}

// handle runs the action bound to keyCode. Unbound keys are ignored.
func (k *keyBindings) handle(keyCode uint32) {
	switch {
	case keyCode >= common.Key1 && keyCode <= common.Key9:
		views := k.s.Views()
		i := int(keyCode - common.Key1)
		if i >= len(views) {
			return
		}
		if err := k.s.ChangeView(views[i]); err != nil {
			k.log.Warnf("failed to change view: %v", err)
		}
	case keyCode == common.KeyS:
		k.log.Debugf("stats visible: %t", k.s.ToggleStats())
	case keyCode == common.KeyA:
		k.log.Debugf("axes visible: %t", k.s.ToggleAxes())
	case keyCode == common.KeyF:
		k.s.Reframe()
	case keyCode == common.KeySpace:
		pos, target := k.s.CameraPose()
		k.log.Infof("camera position: [%.3f, %.3f, %.3f] target: [%.3f, %.3f, %.3f]",
			pos[0], pos[1], pos[2], target[0], target[1], target[2])
	}
}
