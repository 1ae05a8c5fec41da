//
//  internal/requestinfo/requestinfo.go
//
//  Per-request client metadata for the access log: user-agent
//  fingerprint and a best-effort country lookup.  The structs are inert
//  and safe to log.
//
//  Dependencies
//  • github.com/avct/uasurfer           (UA parsing)
//  • github.com/oschwald/geoip2-golang  (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the user-agent properties we log.
type UA struct {
	Browser string // "Chrome", "Firefox", ...
	Version string // "124.0.6367"
	OS      string // "MacOSX", "Windows", ...
	Device  string // "Computer", "Phone", "Tablet", ...
	IsBot   bool
}

// Info is attached to the request context by Enrich.
type Info struct {
	IP      net.IP
	Country string // ISO code, empty without a Geo database
	UA      UA
}

// geoReader is nil until InitGeo succeeds.  Lookups are read-only and
// safe for concurrent use.
var geoReader atomic.Pointer[geoip2.Reader]

// InitGeo opens a GeoLite2 Country or City database.  An empty path
// disables lookups.
func InitGeo(path string) error {
	if path == "" {
		return nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return fmt.Errorf("requestinfo: open geo db: %w", err)
	}
	if old := geoReader.Swap(r); old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseGeo releases the Geo database, if any.
func CloseGeo() {
	if r := geoReader.Swap(nil); r != nil {
		_ = r.Close()
	}
}

type ctxKey struct{}

// FromContext returns the Info stored by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func parseUA(raw string) UA {
	u := surfer.Parse(raw)
	return UA{
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: version(u.Browser.Version),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device:  strings.TrimPrefix(u.DeviceType.String(), "Device"),
		IsBot:   u.IsBot(),
	}
}

// version renders major.minor.patch without trailing zero parts.
func version(v surfer.Version) string {
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	s = strings.TrimSuffix(s, ".0")
	return strings.TrimSuffix(s, ".0")
}

func lookupCountry(ip net.IP) string {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return ""
	}
	rec, err := r.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}
