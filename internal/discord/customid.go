package discord

import (
	"fmt"
	"strings"
)

// Interaction custom ids follow a command:action:data scheme so a single
// router can dispatch buttons and modals without per-message state. The data
// segment is a request id for request actions and a directory account id for
// subscription actions.
const (
	commandRequest = "request"
	commandSub     = "sub"

	actionApprove = "approve"
	actionDecline = "decline"

	actionAddModal    = "add_modal"
	actionRemoveModal = "remove_modal"
	actionConfirmSave = "confirm_save"
	actionConfirmDrop = "confirm_remove"
	actionCancel      = "cancel"
)

// buildCustomID assembles a command:action:data id. data may be empty for
// ids that carry no subject, such as modal ids.
func buildCustomID(command, action, data string) string {
	if data == "" {
		return command + ":" + action
	}
	return fmt.Sprintf("%s:%s:%s", command, action, data)
}

// parseCustomID splits a custom id into its segments. The data segment is
// optional; a malformed id yields ok=false and the router ignores the
// interaction.
func parseCustomID(id string) (command, action, data string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	command, action = parts[0], parts[1]
	if len(parts) == 3 {
		data = parts[2]
	}
	return command, action, data, true
}
