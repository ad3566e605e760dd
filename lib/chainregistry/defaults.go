package chainregistry

// DefaultEndpoints is the weighted WAX mainnet provider list used when the
// config names no endpoints. Zero weight entries are listed but never enter
// a rotation.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{URL: "https://wax.eu.eosamsterdam.net", Role: RoleCore, Weight: 10},
		{URL: "https://wax.blacklusion.io", Role: RoleCore, Weight: 10},
		{URL: "https://wax.dapplica.io", Role: RoleCore, Weight: 10},
		{URL: "https://api-wax.eosauthority.com", Role: RoleCore, Weight: 10},
		{URL: "https://api.wax.greeneosio.com", Role: RoleCore, Weight: 10},
		{URL: "https://waxapi.ledgerwise.io", Role: RoleCore, Weight: 10},
		{URL: "https://wax.pink.gg", Role: RoleCore, Weight: 10},
		{URL: "https://wax.greymass.com", Role: RoleCore, Weight: 10},
		{URL: "https://atomic.ledgerwise.io", Role: RoleMarket, Weight: 10},
		{URL: "https://apiwax.3dkrender.com", Role: RoleCore, Weight: 10},
		{URL: "https://eu.wax.eosrio.io", Role: RoleCore, Weight: 10},
		{URL: "https://wax.eu.eosamsterdam.net", Role: RoleHistory, Weight: 9},
		{URL: "https://wax.cryptolions.io", Role: RoleCore, Weight: 9},
		{URL: "https://wax.dapplica.io", Role: RoleHistory, Weight: 9},
		{URL: "https://wax.dapplica.io", Role: RoleIndexer, Weight: 9},
		{URL: "https://api-wax.eosarabia.net", Role: RoleCore, Weight: 9},
		{URL: "https://api-wax.eosauthority.com", Role: RoleHistory, Weight: 9},
		{URL: "https://api-wax.eosauthority.com", Role: RoleIndexer, Weight: 9},
		{URL: "https://api.wax.greeneosio.com", Role: RoleHistory, Weight: 9},
		{URL: "https://waxapi.ledgerwise.io", Role: RoleHistory, Weight: 9},
		{URL: "https://waxapi.ledgerwise.io", Role: RoleIndexer, Weight: 9},
		{URL: "https://wax.greymass.com", Role: RoleHistory, Weight: 9},
		{URL: "https://api.waxsweden.org", Role: RoleHistory, Weight: 9},
		{URL: "https://api.waxsweden.org", Role: RoleCore, Weight: 9},
		{URL: "https://wax.eosdublin.io", Role: RoleHistory, Weight: 9},
		{URL: "https://wax.eosdublin.io", Role: RoleCore, Weight: 9},
		{URL: "https://api.waxeastern.cn", Role: RoleHistory, Weight: 9},
		{URL: "https://api.waxeastern.cn", Role: RoleCore, Weight: 9},
		{URL: "https://wax-atomic.eosiomadrid.io", Role: RoleMarket, Weight: 9},
		{URL: "https://aa.dapplica.io", Role: RoleMarket, Weight: 9},
		{URL: "https://wax.eosdac.io", Role: RoleCore, Weight: 9},
		{URL: "https://wax-public.neftyblocks.com", Role: RoleCore, Weight: 9},
		{URL: "https://atomic-wax-mainnet.wecan.dev", Role: RoleMarket, Weight: 9},
		{URL: "https://wax.defibox.xyz", Role: RoleCore, Weight: 9},
		{URL: "https://wax.blokcrafters.io", Role: RoleCore, Weight: 8},
		{URL: "https://wax.cryptolions.io", Role: RoleHistory, Weight: 8},
		{URL: "https://wax.cryptolions.io", Role: RoleIndexer, Weight: 8},
		{URL: "https://wax.eosphere.io", Role: RoleHistory, Weight: 8},
		{URL: "https://wax.eosphere.io", Role: RoleCore, Weight: 8},
		{URL: "https://api.wax.greeneosio.com", Role: RoleIndexer, Weight: 8},
		{URL: "https://api.waxsweden.org", Role: RoleIndexer, Weight: 8},
		{URL: "https://api-wax-aa.eosarabia.net", Role: RoleMarket, Weight: 8},
		{URL: "https://aa-api-wax.eosauthority.com", Role: RoleMarket, Weight: 8},
		{URL: "https://wax.api.atomicassets.io", Role: RoleMarket, Weight: 8},
		{URL: "https://wax.eosdublin.io", Role: RoleIndexer, Weight: 8},
		{URL: "https://api.waxeastern.cn", Role: RoleIndexer, Weight: 8},
		{URL: "https://wax-bp.wizardsguild.one", Role: RoleCore, Weight: 8},
		{URL: "https://wax.eosdac.io", Role: RoleHistory, Weight: 8},
		{URL: "https://wax.eosdac.io", Role: RoleIndexer, Weight: 8},
		{URL: "https://wax.defibox.xyz", Role: RoleHistory, Weight: 8},
		{URL: "https://wax-aa.eosdac.io", Role: RoleMarket, Weight: 8},
		{URL: "https://atomic-api.wax.cryptolions.io", Role: RoleMarket, Weight: 8},
		{URL: "https://wax.eosusa.io", Role: RoleHistory, Weight: 8},
		{URL: "https://wax.eosusa.io", Role: RoleCore, Weight: 8},
		{URL: "https://api.wax.alohaeos.com", Role: RoleHistory, Weight: 7},
		{URL: "https://api.wax.alohaeos.com", Role: RoleCore, Weight: 7},
		{URL: "https://api.wax.alohaeos.com", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax.eu.eosamsterdam.net", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax.blacklusion.io", Role: RoleHistory, Weight: 7},
		{URL: "https://wax.blacklusion.io", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax.blokcrafters.io", Role: RoleHistory, Weight: 7},
		{URL: "https://wax.blokcrafters.io", Role: RoleIndexer, Weight: 7},
		{URL: "https://api-wax.eosarabia.net", Role: RoleHistory, Weight: 7},
		{URL: "https://api-wax.eosarabia.net", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax.eosphere.io", Role: RoleIndexer, Weight: 7},
		{URL: "https://api.wax.liquidstudios.io", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax-aa.eu.eosamsterdam.net", Role: RoleMarket, Weight: 7},
		{URL: "https://aa.wax.blacklusion.io", Role: RoleMarket, Weight: 7},
		{URL: "https://wax.blokcrafters.io", Role: RoleMarket, Weight: 7},
		{URL: "https://wax-atomic-api.eosphere.io", Role: RoleMarket, Weight: 7},
		{URL: "https://wax-atomic.wizardsguild.one", Role: RoleMarket, Weight: 7},
		{URL: "https://atomic.3dkrender.com", Role: RoleMarket, Weight: 7},
		{URL: "https://atomic.hivebp.io", Role: RoleMarket, Weight: 7},
		{URL: "https://api.hivebp.io", Role: RoleCore, Weight: 7},
		{URL: "https://apiwax.3dkrender.com", Role: RoleHistory, Weight: 7},
		{URL: "https://apiwax.3dkrender.com", Role: RoleIndexer, Weight: 7},
		{URL: "https://atomic.wax.eosrio.io", Role: RoleMarket, Weight: 7},
		{URL: "https://wax.defibox.xyz", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax.eosusa.io", Role: RoleMarket, Weight: 7},
		{URL: "https://eu.wax.eosrio.io", Role: RoleIndexer, Weight: 7},
		{URL: "https://wax.eosusa.io", Role: RoleIndexer, Weight: 7},
		{URL: "https://atomic-wax.tacocrypto.io", Role: RoleMarket, Weight: 7},
		{URL: "https://wax.csx.io", Role: RoleHistory, Weight: 0},
		{URL: "https://wax.csx.io", Role: RoleCore, Weight: 0},
		{URL: "https://wax.csx.io", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax.eoseoul.io", Role: RoleHistory, Weight: 0},
		{URL: "https://wax.eoseoul.io", Role: RoleCore, Weight: 0},
		{URL: "https://wax.eoseoul.io", Role: RoleIndexer, Weight: 0},
		{URL: "https://api.wax.liquidstudios.io", Role: RoleHistory, Weight: 0},
		{URL: "https://api.wax.liquidstudios.io", Role: RoleCore, Weight: 0},
		{URL: "https://wax.eosn.io", Role: RoleHistory, Weight: 0},
		{URL: "https://wax.eosn.io", Role: RoleCore, Weight: 0},
		{URL: "https://wax.eosn.io", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax.pink.gg", Role: RoleHistory, Weight: 0},
		{URL: "https://wax.pink.gg", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax.greymass.com", Role: RoleIndexer, Weight: 0},
		{URL: "https://api.wax-aa.bountyblok.io", Role: RoleMarket, Weight: 0},
		{URL: "https://api.atomic.greeneosio.com", Role: RoleMarket, Weight: 0},
		{URL: "https://api.wax.liquidstudios.io", Role: RoleMarket, Weight: 0},
		{URL: "https://api.wax.eosdetroit.io", Role: RoleHistory, Weight: 0},
		{URL: "https://api.wax.eosdetroit.io", Role: RoleCore, Weight: 0},
		{URL: "https://api.wax.eosdetroit.io", Role: RoleIndexer, Weight: 0},
		{URL: "https://api.hivebp.io", Role: RoleHistory, Weight: 0},
		{URL: "https://api.hivebp.io", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax-aa.eosdublin.io", Role: RoleMarket, Weight: 0},
		{URL: "https://api.wax.mainnet.wecan.dev", Role: RoleHistory, Weight: 0},
		{URL: "https://api.wax.mainnet.wecan.dev", Role: RoleCore, Weight: 0},
		{URL: "https://api.wax.mainnet.wecan.dev", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax-bp.wizardsguild.one", Role: RoleHistory, Weight: 0},
		{URL: "https://wax-bp.wizardsguild.one", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax.hkeos.com/aa", Role: RoleMarket, Weight: 0},
		{URL: "https://atomic.tokengamer.io", Role: RoleMarket, Weight: 0},
		{URL: "https://wax-hyperion.eosiomadrid.io", Role: RoleHistory, Weight: 0},
		{URL: "https://wax-hyperion.eosiomadrid.io", Role: RoleCore, Weight: 0},
		{URL: "https://wax-hyperion.eosiomadrid.io", Role: RoleIndexer, Weight: 0},
		{URL: "https://wax-public.neftyblocks.com", Role: RoleHistory, Weight: 0},
		{URL: "https://wax-public.neftyblocks.com", Role: RoleIndexer, Weight: 0},
		{URL: "https://aa-wax-public.neftyblocks.com", Role: RoleMarket, Weight: 0},
		{URL: "https://atomic.wax.eosdetroit.io", Role: RoleMarket, Weight: 0},
		{URL: "https://eu.wax.eosrio.io", Role: RoleHistory, Weight: 0},
	}
}
