// Package constants provides shared constants for the shop-timeline application
package constants

// AppName is the binary and logger name of the application
const AppName = "shop-timeline"
