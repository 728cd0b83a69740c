package handlers

// Error Codes
const (
	ErrCodeInvalidJSON           = "invalid_json"
	ErrCodeInvalidScale          = "invalid_scale"
	ErrCodeInvalidDate           = "invalid_date"
	ErrCodeInvalidOffset         = "invalid_offset"
	ErrCodeInvalidRowRange       = "invalid_row_range"
	ErrCodeInvalidWorkOrder      = "invalid_work_order"
	ErrCodeUnknownWorkCenter     = "unknown_work_center"
	ErrCodeWorkOrderNotFound     = "work_order_not_found"
	ErrCodeWorkOrderOverlap      = "work_order_overlap"
	ErrCodeMissingWorkOrderID    = "missing_work_order_id"
	ErrCodeWorkOrderIDMismatch   = "work_order_id_mismatch"
	ErrCodeFailedLoadRows        = "failed_load_rows"
	ErrCodeFailedSaveWorkOrder   = "failed_save_work_order"
	ErrCodeFailedDeleteWorkOrder = "failed_delete_work_order"
	ErrCodeUnknown               = "unknown_error"
)

// ErrorMessages maps error codes to user-friendly messages
var ErrorMessages = map[string]string{
	ErrCodeInvalidJSON:           "The request body is not valid JSON.",
	ErrCodeInvalidScale:          "Timescale must be one of day, week or month.",
	ErrCodeInvalidDate:           "Dates must be ISO-8601.",
	ErrCodeInvalidOffset:         "Offset must be a number.",
	ErrCodeInvalidRowRange:       "Row range must be two non-negative integers with start <= end.",
	ErrCodeInvalidWorkOrder:      "The work order is invalid.",
	ErrCodeUnknownWorkCenter:     "The work center does not exist.",
	ErrCodeWorkOrderNotFound:     "The work order does not exist.",
	ErrCodeWorkOrderOverlap:      "The work order overlaps another order on the same work center.",
	ErrCodeMissingWorkOrderID:    "No work order specified.",
	ErrCodeWorkOrderIDMismatch:   "The work order id in the body does not match the URL.",
	ErrCodeFailedLoadRows:        "Failed to load work centers. Please try again.",
	ErrCodeFailedSaveWorkOrder:   "Failed to save the work order. Please try again.",
	ErrCodeFailedDeleteWorkOrder: "Failed to delete the work order. Please try again.",
	ErrCodeUnknown:               "An unknown error occurred.",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return ErrorMessages[ErrCodeUnknown]
}
