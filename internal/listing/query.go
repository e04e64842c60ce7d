package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// PriceOpenEnded is the price-range token marking a range with no upper
// bound, e.g. "500000-plus".
const PriceOpenEnded = "plus"

// FilterInput is the raw search form state: a free-text location and a
// price range encoded as "min-max".
type FilterInput struct {
	Location string
	Price    string
}

// Query is the normalized listing filter sent to the backend.
type Query struct {
	Search   string
	MinPrice *int
	MaxPrice *int
}

// BuildQuery turns form state into a backend query. The price range splits
// on "-"; a missing or "plus" upper token leaves MaxPrice unset, and a
// bound of "0" is kept. Tokens that don't parse as integers are dropped.
func BuildQuery(input FilterInput) Query {
	q := Query{Search: input.Location}

	if input.Price == "" {
		return q
	}

	parts := strings.SplitN(input.Price, "-", 2)

	if min, ok := parsePriceToken(parts[0]); ok {
		q.MinPrice = &min
	}
	if len(parts) == 2 && parts[1] != PriceOpenEnded {
		if max, ok := parsePriceToken(parts[1]); ok {
			q.MaxPrice = &max
		}
	}

	return q
}

func parsePriceToken(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Values encodes the query as backend URL parameters. Unset fields are
// omitted entirely rather than sent empty.
func (q Query) Values() url.Values {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.MinPrice != nil {
		values.Set("minPrice", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		values.Set("maxPrice", strconv.Itoa(*q.MaxPrice))
	}
	return values
}

// ParseValues reads a query back out of URL parameters, so a filter
// round-trips through the address bar unchanged.
func ParseValues(values url.Values) Query {
	q := Query{Search: values.Get("search")}

	if min, ok := parsePriceToken(values.Get("minPrice")); ok {
		q.MinPrice = &min
	}
	if max, ok := parsePriceToken(values.Get("maxPrice")); ok {
		q.MaxPrice = &max
	}

	return q
}
