package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cardFixture struct {
	Number string `validate:"required,cardnumber"`
	Month  string `validate:"required,expmonth"`
	Year   string `validate:"required,expyear"`
	CVV    string `validate:"required,cvv"`
}

func TestValidateCardNumber(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{"valid visa", "4242424242424242", true},
		{"valid mastercard", "5555555555554444", true},
		{"fails luhn", "4242424242424243", false},
		{"too short", "42424242424", false},
		{"non digits", "4242-4242-4242-4242", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.number, "cardnumber")
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateExpiry(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("1", "expmonth"))
	assert.NoError(t, v.Var("01", "expmonth"))
	assert.NoError(t, v.Var("12", "expmonth"))
	assert.Error(t, v.Var("0", "expmonth"))
	assert.Error(t, v.Var("13", "expmonth"))
	assert.Error(t, v.Var("abc", "expmonth"))

	thisYear := time.Now().Year()
	assert.NoError(t, v.Var(formatYear(thisYear+1), "expyear"))
	assert.NoError(t, v.Var(formatYear(thisYear)[2:], "expyear"))
	assert.Error(t, v.Var("1999", "expyear"))
	assert.Error(t, v.Var("202", "expyear"))
}

func formatYear(y int) string {
	return string([]byte{
		byte('0' + y/1000%10),
		byte('0' + y/100%10),
		byte('0' + y/10%10),
		byte('0' + y%10),
	})
}

func TestValidateCVV(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("123", "cvv"))
	assert.NoError(t, v.Var("1234", "cvv"))
	assert.Error(t, v.Var("12", "cvv"))
	assert.Error(t, v.Var("12a", "cvv"))
}

func TestValidateStruct(t *testing.T) {
	v := New()

	fields := v.ValidateStruct(cardFixture{
		Number: "4242424242424242",
		Month:  "06",
		Year:   "2030",
		CVV:    "123",
	})
	assert.Nil(t, fields)

	fields = v.ValidateStruct(cardFixture{
		Number: "4242424242424243",
		Month:  "13",
		Year:   "2030",
		CVV:    "123",
	})
	assert.Equal(t, "is not a valid card number", fields["number"])
	assert.Equal(t, "must be a month between 1 and 12", fields["month"])
	assert.NotContains(t, fields, "year")
	assert.NotContains(t, fields, "cvv")
}

func BenchmarkLuhn(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = luhnValid("4242424242424242")
	}
}
