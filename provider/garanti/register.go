package garanti

import (
	"github.com/mstgnz/gvpay/provider"
)

func init() {
	provider.Register("garanti", NewProvider)
}
