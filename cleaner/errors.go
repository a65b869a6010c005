package cleaner

import (
	"errors"

	"github.com/aws/smithy-go"
)

// deleteErrorMessages maps AWS error codes to operator-facing text.
// Codes outside the map fall back to the raw AWS message.
var deleteErrorMessages = map[string]string{
	"DependencyViolation":          "resource has a dependent object and cannot be deleted",
	"InvalidGroup.NotFound":        "security group no longer exists",
	"InvalidGroup.InUse":           "security group is still in use",
	"InvalidPermission.NotFound":   "referenced rule no longer exists",
	"InvalidVpcID.NotFound":        "vpc no longer exists",
	"InvalidSubnetID.NotFound":     "subnet no longer exists",
	"InvalidAllocationID.NotFound": "elastic ip allocation no longer exists",
	"InvalidIPAddress.InUse":       "elastic ip is still mapped to an instance or network interface",
	"UnauthorizedOperation":        "not authorized to delete this resource",
	"AuthFailure":                  "authentication failed for this operation",
}

// translateDeleteError turns a delete failure into a stable message.
func translateDeleteError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg, ok := deleteErrorMessages[apiErr.ErrorCode()]; ok {
			return msg
		}
		if apiErr.ErrorMessage() != "" {
			return apiErr.ErrorMessage()
		}
	}
	return err.Error()
}
