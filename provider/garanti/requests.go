package garanti

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mstgnz/gvpay/provider"
)

// validateDirectFields checks every field the gateway requires before any
// hash is computed. No partial request is ever hashed or serialized.
func (p *GarantiProvider) validateDirectFields(orderID, cardNumber string) error {
	if orderID == "" {
		return &provider.MissingFieldError{Field: "orderId"}
	}
	if p.terminalID == "" {
		return &provider.MissingFieldError{Field: "terminalId"}
	}
	if p.merchantID == "" {
		return &provider.MissingFieldError{Field: "merchantId"}
	}
	if cardNumber == "" {
		return &provider.MissingFieldError{Field: "cardNumber"}
	}
	return nil
}

// currencyCode resolves a textual currency to the gateway's numeric code.
// Unknown currencies are an error, never a default.
func (p *GarantiProvider) currencyCode(currency string) (string, error) {
	code, ok := p.currencyCodes[currency]
	if !ok {
		return "", &provider.UnsupportedCurrencyError{Currency: currency}
	}
	return code, nil
}

// formatExpireDate renders card expiry as MMYY, the form the gateway expects
func formatExpireDate(month, year string) string {
	if len(month) == 1 {
		month = "0" + month
	}
	if len(year) == 4 {
		year = year[2:]
	}
	return month + year
}

// buildDirectRequest assembles the nested tree for a direct server-to-server
// sale or preauth. Key order matters: the gateway parses positionally.
//
// The sale and preauth shapes are identical except that preauth omits CVV2,
// sets Terminal.UserID to the API username instead of the provisioning user,
// and carries Type "preauth".
func (p *GarantiProvider) buildDirectRequest(request provider.PaymentRequest, txnType string) (*Node, error) {
	if err := p.validateDirectFields(request.OrderID, request.CardInfo.CardNumber); err != nil {
		return nil, err
	}
	currency, err := p.currencyCode(request.Currency)
	if err != nil {
		return nil, err
	}

	securityHash := terminalSecurityHash(p.password, p.terminalID)
	hashData := transactionHash(request.OrderID, p.terminalID, request.CardInfo.CardNumber, request.Amount, securityHash)

	terminalUserID := provisioningUserID
	if txnType == txnTypePreAuth {
		terminalUserID = p.username
	}

	root := NewNode()
	root.Add("Version", apiVersion)
	root.Add("Mode", p.modeString())

	card := root.AddNode("Card")
	card.Add("Number", request.CardInfo.CardNumber)
	card.Add("ExpireDate", formatExpireDate(request.CardInfo.ExpireMonth, request.CardInfo.ExpireYear))
	if txnType != txnTypePreAuth {
		card.Add("CVV2", request.CardInfo.CVV)
	}

	root.AddNode("Order").Add("OrderID", request.OrderID)

	customer := root.AddNode("Customer")
	customer.Add("IPAddress", request.ClientIP)
	customer.Add("EmailAddress", request.Customer.Email)

	terminal := root.AddNode("Terminal")
	terminal.Add("ProvUserID", p.username)
	terminal.Add("HashData", hashData)
	terminal.Add("UserID", terminalUserID)
	terminal.Add("ID", p.terminalID)
	terminal.Add("MerchantID", p.merchantID)

	txn := root.AddNode("Transaction")
	txn.Add("Type", txnType)
	txn.Add("InstallmentCnt", installmentString(request.InstallmentCount))
	txn.Add("Amount", strconv.FormatInt(request.Amount, 10))
	txn.Add("CurrencyCode", currency)
	txn.Add("CardholderPresentCode", "0")
	txn.Add("MotoInd", "N")

	return root, nil
}

// buildManagementRequest assembles the tree for void and refund operations,
// which are keyed by order id rather than card data. The transaction hash is
// computed with an empty card number.
func (p *GarantiProvider) buildManagementRequest(orderID string, amount int64, currency, txnType, clientIP string) (*Node, error) {
	if orderID == "" {
		return nil, &provider.MissingFieldError{Field: "orderId"}
	}
	if p.terminalID == "" {
		return nil, &provider.MissingFieldError{Field: "terminalId"}
	}
	if p.merchantID == "" {
		return nil, &provider.MissingFieldError{Field: "merchantId"}
	}
	currencyCode, err := p.currencyCode(currency)
	if err != nil {
		return nil, err
	}

	securityHash := terminalSecurityHash(p.password, p.terminalID)
	hashData := transactionHash(orderID, p.terminalID, "", amount, securityHash)

	root := NewNode()
	root.Add("Version", apiVersion)
	root.Add("Mode", p.modeString())

	root.AddNode("Order").Add("OrderID", orderID)

	customer := root.AddNode("Customer")
	customer.Add("IPAddress", clientIP)
	customer.Add("EmailAddress", "")

	terminal := root.AddNode("Terminal")
	terminal.Add("ProvUserID", p.username)
	terminal.Add("HashData", hashData)
	terminal.Add("UserID", refundUserID)
	terminal.Add("ID", p.terminalID)
	terminal.Add("MerchantID", p.merchantID)

	txn := root.AddNode("Transaction")
	txn.Add("Type", txnType)
	txn.Add("InstallmentCnt", "")
	txn.Add("Amount", strconv.FormatInt(amount, 10))
	txn.Add("CurrencyCode", currencyCode)
	txn.Add("CardholderPresentCode", "0")
	txn.Add("MotoInd", "N")

	return root, nil
}

// build3DParams assembles the flat key/value set posted to the 3D engine.
// The secure3dhash covers the integer minor-unit amount even though the
// txnamount field carries the decimal display string.
//
// Unlike the direct flow, mode here is the boolean test flag rendered as a
// string, not "TEST"/"PROD". The gateway expects the asymmetry.
func (p *GarantiProvider) build3DParams(request provider.PaymentRequest, now time.Time) ([]formField, error) {
	if err := p.validateDirectFields(request.OrderID, request.CardInfo.CardNumber); err != nil {
		return nil, err
	}
	currency, err := p.currencyCode(request.Currency)
	if err != nil {
		return nil, err
	}

	padded := paddedTerminalID(p.terminalID)
	installments := installmentString(request.InstallmentCount)

	securityHash := terminalSecurityHash(p.password, p.terminalID)
	hash := secure3DHash(p.terminalID, request.OrderID, request.Amount,
		request.SuccessURL, request.ErrorURL, txnTypeSale, request.InstallmentCount, p.secureKey, securityHash)

	fields := []formField{
		{"apiversion", apiVersion},
		{"mode", strconv.FormatBool(p.isTest())},
		{"terminalprovuserid", p.username},
		{"terminaluserid", padded},
		{"terminalid", padded},
		{"terminalmerchantid", p.merchantID},
		{"orderid", request.OrderID},
		{"customeremailaddress", request.Customer.Email},
		{"customeripaddress", request.ClientIP},
		{"txnamount", formatDecimalAmount(request.Amount)},
		{"txncurrencycode", currency},
		{"txninstallmentcount", installments},
		{"successurl", request.SuccessURL},
		{"errorurl", request.ErrorURL},
		{"lang", p.lang},
		{"txntimestamp", strconv.FormatInt(now.Unix(), 10)},
		{"txntimeoutperiod", "60"},
		{"addcampaigninstallment", "N"},
		{"totallinstallmentcount", "0"},
		{"installmentonlyforcommercialcard", "0"},
		{"txntype", txnTypeSale},
		{"secure3dsecuritylevel", "3d"},
		{"secure3dhash", hash},
		{"cardnumber", request.CardInfo.CardNumber},
		{"cardexpiredatemonth", padMonth(request.CardInfo.ExpireMonth)},
		{"cardexpiredateyear", shortYear(request.CardInfo.ExpireYear)},
		{"cardcvv2", request.CardInfo.CVV},
	}
	return fields, nil
}

// installmentString renders an installment count for the wire. Zero means
// single payment, sent as "0".
func installmentString(count int) string {
	if count < 0 {
		count = 0
	}
	return strconv.Itoa(count)
}

// formatDecimalAmount renders minor units as a decimal display string,
// e.g. 1000 kuruş becomes "10.00"
func formatDecimalAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

func padMonth(month string) string {
	if len(month) == 1 {
		return "0" + month
	}
	return month
}

func shortYear(year string) string {
	if len(year) == 4 {
		return year[2:]
	}
	return year
}
