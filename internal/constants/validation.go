// Package constants provides shared constants for the shop-timeline application
package constants

// Document discriminators used by the sample-data format
const (
	DocTypeWorkCenter = "workCenter"
	DocTypeWorkOrder  = "workOrder"
)

// ValidDocTypes is a map of the document types accepted on import
var ValidDocTypes = map[string]bool{
	DocTypeWorkCenter: true,
	DocTypeWorkOrder:  true,
}

// IsValidDocType checks if a given discriminator is a known document type
func IsValidDocType(docType string) bool {
	return ValidDocTypes[docType]
}
