package vault

// LeveragedYieldFarmABI is the subset of the farm contract ABI the keeper calls.
const LeveragedYieldFarmABI = `[
	{
		"type": "function",
		"name": "getPositionInfo",
		"stateMutability": "view",
		"inputs": [{"name": "asset", "type": "address"}],
		"outputs": [
			{"name": "supplied", "type": "uint256"},
			{"name": "borrowed", "type": "uint256"},
			{"name": "rewards", "type": "uint256"}
		]
	},
	{
		"type": "function",
		"name": "deposit",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "asset", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "leverage", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "withdraw",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "asset", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	}
]`

const (
	methodGetPositionInfo = "getPositionInfo"
	methodDeposit         = "deposit"
	methodWithdraw        = "withdraw"
)
