package view

import "fmt"

// LocateMethod is a device positioning technique offered by the map and
// tracker views.
type LocateMethod string

const (
	LocateGPS    LocateMethod = "gps"
	LocateIP     LocateMethod = "ip"
	LocateMAC    LocateMethod = "mac"
	LocateSignal LocateMethod = "signal"
)

// LocateInfo is the user-facing description of a LocateMethod.
type LocateInfo struct {
	Method      LocateMethod `json:"method"`
	Description string       `json:"description"`
	Accuracy    string       `json:"accuracy"`
	Source      string       `json:"source"`
}

var locateInfo = map[LocateMethod]LocateInfo{
	LocateGPS: {
		Method:      LocateGPS,
		Description: "استفاده از GPS برای موقعیت‌یابی دقیق دستگاه‌ها",
		Accuracy:    "بسیار بالا (5-10 متر)",
		Source:      "GPS",
	},
	LocateIP: {
		Method:      LocateIP,
		Description: "موقعیت‌یابی بر اساس آدرس IP دستگاه‌ها",
		Accuracy:    "پایین (سطح شهر)",
		Source:      "MaxMind GeoIP",
	},
	LocateMAC: {
		Method:      LocateMAC,
		Description: "موقعیت‌یابی بر اساس آدرس MAC و اطلاعات شبکه",
		Accuracy:    "متوسط به پایین (100-500 متر)",
		Source:      "شبکه محلی",
	},
	LocateSignal: {
		Method:      LocateSignal,
		Description: "موقعیت‌یابی بر اساس قدرت سیگنال دستگاه‌ها",
		Accuracy:    "متوسط (50-100 متر)",
		Source:      "شبکه محلی",
	},
}

// DescribeLocate returns the description of method. The empty method means
// LocateIP, the views' default.
func DescribeLocate(method LocateMethod) (LocateInfo, error) {
	if method == "" {
		method = LocateIP
	}
	info, ok := locateInfo[method]
	if !ok {
		return LocateInfo{}, fmt.Errorf("unknown locate method %q", method)
	}
	return info, nil
}

// LocateMethods lists every method in menu order.
func LocateMethods() []LocateInfo {
	return []LocateInfo{locateInfo[LocateIP], locateInfo[LocateGPS], locateInfo[LocateMAC], locateInfo[LocateSignal]}
}
