package journals

var currencies = []string{
	"🇲🇾 MYR",
	"🇸🇬 SGD",
	"🇹🇭 THB",
	"🇮🇩 IDR",
	"🇻🇳 VND",
	"🇵🇭 PHP",
	"🇯🇵 JPY",
	"🇰🇷 KRW",
	"🇨🇳 CNY",
	"🇹🇼 TWD",
	"🇭🇰 HKD",
	"🇮🇳 INR",
	"🇦🇺 AUD",
	"🇳🇿 NZD",
	"🇺🇸 USD",
	"🇨🇦 CAD",
	"🇬🇧 GBP",
	"🇪🇺 EUR",
	"🇨🇭 CHF",
	"🇦🇪 AED",
}

// Currencies lists the currency choices offered when editing a journal.
func Currencies() []string {
	return append([]string(nil), currencies...)
}
