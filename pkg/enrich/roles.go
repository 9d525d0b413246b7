package enrich

import "strings"

// Node roles.
const (
	RoleActor     = "actor"
	RoleGateway   = "gateway"
	RoleService   = "service"
	RoleExternal  = "external"
	RoleDataStore = "data_store"
)

// zoneRoles maps a plan zone to the role of its members.
var zoneRoles = map[string]string{
	ZoneClients:          RoleActor,
	ZoneEdge:             RoleGateway,
	ZoneCoreServices:     RoleService,
	ZoneExternalServices: RoleExternal,
	ZoneDataStores:       RoleDataStore,
}

// roleKeywords drive role inference for labels that were never assigned a
// zone (typically components mentioned only as relationship endpoints).
// First match wins, checked in order.
var roleKeywords = []struct {
	keywords []string
	role     string
}{
	{[]string{"db", "database", "store", "storage", "cache", "bucket"}, RoleDataStore},
	{[]string{"gateway", "ingress", "proxy", "load balancer", "lb"}, RoleGateway},
	{[]string{"email", "auth", "payment", "external", "third-party", "stripe", "twilio"}, RoleExternal},
	{[]string{"browser", "mobile", "client", "user", "app"}, RoleActor},
}

// inferRole guesses a role for an unzoned label from keyword heuristics,
// defaulting to service.
func inferRole(label string) string {
	lower := strings.ToLower(label)
	for _, rk := range roleKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(lower, kw) {
				return rk.role
			}
		}
	}
	return RoleService
}

// zoneForRole maps an inferred role back to the zone the node is laid out
// in. Inverse of zoneRoles.
var zoneForRole = map[string]string{
	RoleActor:     ZoneClients,
	RoleGateway:   ZoneEdge,
	RoleService:   ZoneCoreServices,
	RoleExternal:  ZoneExternalServices,
	RoleDataStore: ZoneDataStores,
}
