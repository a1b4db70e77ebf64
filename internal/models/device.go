package models

// DeviceType selects the decode and command rules for a bound device.
type DeviceType string

const (
	DeviceTypeSpa        DeviceType = "SPA"
	DeviceTypeSpaV01     DeviceType = "SPA_V01"
	DeviceTypePoolFilter DeviceType = "POOL_FILTER"
	DeviceTypeUnknown    DeviceType = "UNKNOWN"
)

// Product names reported by the cloud bindings list. The pool filter reports
// a localized (Chinese) product name.
const (
	ProductSpa        = "Airjet"
	ProductSpaV01     = "Airjet_V01"
	ProductPoolFilter = "泳池过滤器" // "pool filter"
)

// DeviceTypeForProduct maps a reported product name to a device type.
// Unrecognized products map to DeviceTypeUnknown, never an error.
func DeviceTypeForProduct(product string) DeviceType {
	switch product {
	case ProductSpa:
		return DeviceTypeSpa
	case ProductSpaV01:
		return DeviceTypeSpaV01
	case ProductPoolFilter:
		return DeviceTypePoolFilter
	default:
		return DeviceTypeUnknown
	}
}

// Device is one appliance bound to the cloud account. The record is
// immutable between bindings refreshes.
type Device struct {
	ID              string     `json:"device_id"`
	Alias           string     `json:"alias"`
	Product         string     `json:"product_name"`
	Type            DeviceType `json:"device_type"`
	Protocol        int        `json:"protocol"`
	MCUSoftVersion  string     `json:"mcu_soft_version"`
	MCUHardVersion  string     `json:"mcu_hard_version"`
	WifiSoftVersion string     `json:"wifi_soft_version"`
	WifiHardVersion string     `json:"wifi_hard_version"`
	Online          bool       `json:"is_online"`
}
