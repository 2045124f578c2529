package txparser

import (
	"fmt"
)

// checkedAmount reads the amount and the decimals byte of a *Checked
// instruction: [type u8][amount u64][decimals u8].
func checkedAmount(data []byte) (uint64, uint8, bool) {
	if len(data) < 10 {
		return 0, 0, false
	}
	amount, _ := tokenAmount(data)
	return amount, data[9], true
}

func processTransferCheck(ix *RawInstruction) *Action {
	amount, decimals, ok := checkedAmount(ix.Data)
	if !ok {
		return nil
	}

	action := newAction(
		PROTOCOL_SPL_TOKEN,
		"TransferChecked",
		fmt.Sprintf("Transfer %s tokens", uiAmount(amount, decimals)),
	)
	action.Details["source"] = ix.accountString(0)
	action.Details["mint"] = ix.accountString(1)
	action.Details["destination"] = ix.accountString(2)
	action.Details["owner"] = ix.accountString(3)
	action.Details["amount"] = formatUint(amount)
	action.Details["decimals"] = decimals
	action.Details["uiAmount"] = uiAmount(amount, decimals)
	if len(ix.Accounts) >= 3 && ix.Accounts[0].Equals(ix.Accounts[2]) {
		action.Direction = DirectionSelf
	}
	return action
}

func processMintToCheck(ix *RawInstruction) *Action {
	amount, decimals, ok := checkedAmount(ix.Data)
	if !ok {
		return nil
	}

	action := newAction(
		PROTOCOL_SPL_TOKEN,
		"MintToChecked",
		fmt.Sprintf("Mint %s tokens", uiAmount(amount, decimals)),
	)
	action.Details["mint"] = ix.accountString(0)
	action.Details["destination"] = ix.accountString(1)
	action.Details["authority"] = ix.accountString(2)
	action.Details["amount"] = formatUint(amount)
	action.Details["decimals"] = decimals
	action.Details["uiAmount"] = uiAmount(amount, decimals)
	return action
}

func processBurnCheck(ix *RawInstruction) *Action {
	amount, decimals, ok := checkedAmount(ix.Data)
	if !ok {
		return nil
	}

	action := newAction(
		PROTOCOL_SPL_TOKEN,
		"BurnChecked",
		fmt.Sprintf("Burn %s tokens", uiAmount(amount, decimals)),
	)
	action.Details["source"] = ix.accountString(0)
	action.Details["mint"] = ix.accountString(1)
	action.Details["authority"] = ix.accountString(2)
	action.Details["amount"] = formatUint(amount)
	action.Details["decimals"] = decimals
	action.Details["uiAmount"] = uiAmount(amount, decimals)
	return action
}
