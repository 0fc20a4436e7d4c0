package garanti

import (
	"crypto/sha1"
	"fmt"
	"strconv"
	"strings"
)

// sha1Hex is a variable so tests can intercept hash invocations
var sha1Hex = func(s string) string {
	return strings.ToUpper(fmt.Sprintf("%x", sha1.Sum([]byte(s))))
}

// paddedTerminalID left-pads a terminal id with zeros to width 9. The
// gateway requires the padded form everywhere a terminal id enters a hash
// or the 3D payload. Padding is idempotent for ids already 9 characters.
func paddedTerminalID(terminalID string) string {
	if len(terminalID) >= 9 {
		return terminalID
	}
	return strings.Repeat("0", 9-len(terminalID)) + terminalID
}

// terminalSecurityHash derives the base security hash from the terminal
// password and the padded terminal id
func terminalSecurityHash(password, terminalID string) string {
	return sha1Hex(password + paddedTerminalID(terminalID))
}

// transactionHash derives the HashData value for direct flow requests.
// Concatenation order is fixed and delimiter-free; the gateway recomputes
// the same chain and rejects any mismatch.
func transactionHash(orderID, terminalID, cardNumber string, amount int64, securityHash string) string {
	return sha1Hex(orderID + paddedTerminalID(terminalID) + cardNumber + strconv.FormatInt(amount, 10) + securityHash)
}

// secure3DHash derives the secure3dhash value for 3D secure initiation.
// The amount here is the integer minor-unit value, not the decimal display
// string the payload carries in txnamount.
func secure3DHash(terminalID, orderID string, amount int64, successURL, errorURL, txnType string, installmentCount int, secureKey, securityHash string) string {
	return sha1Hex(paddedTerminalID(terminalID) + orderID + strconv.FormatInt(amount, 10) +
		successURL + errorURL + txnType + strconv.Itoa(installmentCount) + secureKey + securityHash)
}
