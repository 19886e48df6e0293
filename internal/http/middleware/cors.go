package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// NoOriginSentinel in the allow-list admits requests without an Origin
	// header (curl, server-to-server).
	NoOriginSentinel = "<no-origin>"
	wildcardOrigin   = "*"

	corsAllowHeaders = "content-type, authorization"
	corsAllowMethods = "POST, OPTIONS"

	corsDecisionKey = "corsDecision"
)

// CorsDecision is the per-request outcome of the origin policy.
type CorsDecision struct {
	Allowed bool
	// OriginToEcho is the Access-Control-Allow-Origin value; "" means none.
	OriginToEcho string
	VaryByOrigin bool
}

// ResolveCORS evaluates origin against the allow-list. hasOrigin distinguishes
// a missing header from an empty one. Rules are applied in order and the
// first match wins:
//
//  1. empty list denies everything
//  2. "*" allows, echoing the origin (or "*" when there is none)
//  3. a missing origin is allowed only with NoOriginSentinel listed
//  4. an exact entry allows
//  5. an entry ending in "*" allows origins starting with its prefix
//  6. deny
func ResolveCORS(origin string, hasOrigin bool, allowed []string) CorsDecision {
	if len(allowed) == 0 {
		return CorsDecision{VaryByOrigin: true}
	}
	for _, a := range allowed {
		if a == wildcardOrigin {
			echo := wildcardOrigin
			if hasOrigin {
				echo = origin
			}
			return CorsDecision{Allowed: true, OriginToEcho: echo, VaryByOrigin: true}
		}
	}
	if !hasOrigin {
		for _, a := range allowed {
			if a == NoOriginSentinel {
				return CorsDecision{Allowed: true, VaryByOrigin: true}
			}
		}
		return CorsDecision{VaryByOrigin: true}
	}
	for _, a := range allowed {
		if a == origin {
			return CorsDecision{Allowed: true, OriginToEcho: origin, VaryByOrigin: true}
		}
	}
	for _, a := range allowed {
		if prefix, ok := strings.CutSuffix(a, wildcardOrigin); ok && prefix != "" && strings.HasPrefix(origin, prefix) {
			return CorsDecision{Allowed: true, OriginToEcho: origin, VaryByOrigin: true}
		}
	}
	return CorsDecision{VaryByOrigin: true}
}

// CORS resolves the origin policy for every request, writes the CORS response
// headers and stores the decision for handlers (see CORSDecisionFrom). It
// never aborts: preflight and transform handlers decide what a denial means.
func CORS(allowed []string) gin.HandlerFunc {
	list := append([]string(nil), allowed...)
	return func(c *gin.Context) {
		origin, hasOrigin := originOf(c)
		d := ResolveCORS(origin, hasOrigin, list)
		c.Set(corsDecisionKey, d)

		h := c.Writer.Header()
		if d.VaryByOrigin {
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		if d.Allowed && d.OriginToEcho != "" {
			h.Set("Access-Control-Allow-Origin", d.OriginToEcho)
		}
		c.Next()
	}
}

// CORSDecisionFrom returns the decision stored by CORS. Without the middleware
// the request is treated as denied.
func CORSDecisionFrom(c *gin.Context) CorsDecision {
	if v, ok := c.Get(corsDecisionKey); ok {
		if d, ok := v.(CorsDecision); ok {
			return d
		}
	}
	return CorsDecision{}
}

// OriginLabel names the request origin for logs.
func OriginLabel(c *gin.Context) string {
	if o, ok := originOf(c); ok {
		return o
	}
	return NoOriginSentinel
}

func originOf(c *gin.Context) (string, bool) {
	vv, ok := c.Request.Header["Origin"]
	if !ok || len(vv) == 0 {
		return "", false
	}
	return vv[0], true
}
