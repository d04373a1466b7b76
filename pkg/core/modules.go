package core

// Import the built-in monitors so that they register themselves

import (
	_ "github.com/signalfx/ibmame-agent/pkg/monitors/ibmame"
)
