package chain

// Minimal ABI fragments for the pre-deployed LandRegistry and Escrow
// contracts. Only the functions and events the backend touches.

const landRegistryABI = `[
	{"constant":true,"inputs":[],"name":"admin","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"","type":"uint256"}],"name":"lands","outputs":[{"name":"owner","type":"address"},{"name":"khatian","type":"string"},{"name":"state","type":"string"},{"name":"city","type":"string"},{"name":"ward","type":"string"},{"name":"area","type":"uint256"},{"name":"valuation","type":"uint256"},{"name":"isRegistered","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"owner","type":"address"},{"name":"khatian","type":"string"},{"name":"state","type":"string"},{"name":"city","type":"string"},{"name":"ward","type":"string"},{"name":"area","type":"uint256"},{"name":"valuation","type":"uint256"}],"name":"registerLand","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"landId","type":"uint256"},{"name":"value","type":"uint256"}],"name":"setValuation","outputs":[],"type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"landId","type":"uint256"},{"indexed":true,"name":"owner","type":"address"},{"indexed":false,"name":"khatian","type":"string"}],"name":"LandRegistered","type":"event"}
]`

const escrowABI = `[
	{"constant":true,"inputs":[],"name":"dealCount","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"","type":"uint256"}],"name":"deals","outputs":[{"name":"buyer","type":"address"},{"name":"landId","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"completed","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"dealId","type":"uint256"}],"name":"approveDeal","outputs":[],"type":"function"}
]`
