package common

const (
	ComponentSyncer      = "syncer"
	ComponentDiscovery   = "discovery"
	ComponentStore       = "store"
	ComponentGamma       = "gamma"
	ComponentRPC         = "rpc"
	ComponentAPI         = "api"
	ComponentMaintenance = "maintenance"
)

var AllComponents = map[string]struct{}{
	ComponentSyncer:      {},
	ComponentDiscovery:   {},
	ComponentStore:       {},
	ComponentGamma:       {},
	ComponentRPC:         {},
	ComponentAPI:         {},
	ComponentMaintenance: {},
}
