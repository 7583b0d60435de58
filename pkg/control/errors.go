package control

import "errors"

// ErrNoController indicates the server was built without a campaign to control.
var ErrNoController = errors.New("control: controller is required")
