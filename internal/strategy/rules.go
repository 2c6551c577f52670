package strategy

import "github.com/sdcoffey/techan"

// Rule is a condition evaluated at a bar index. A rule is a pure function of
// the index, the trading record and the price history it was built over.
// Insufficient history yields false with a nil error; the error return only
// carries analyzer failures.
type Rule func(index int, record *techan.TradingRecord) (bool, error)

// And combines rules left to right and stops at the first false or error.
func And(rules ...Rule) Rule {
	return func(index int, record *techan.TradingRecord) (bool, error) {
		for _, r := range rules {
			ok, err := r(index, record)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Or combines rules left to right and stops at the first true or error.
func Or(rules ...Rule) Rule {
	return func(index int, record *techan.TradingRecord) (bool, error) {
		for _, r := range rules {
			ok, err := r(index, record)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Not negates r. Errors pass through with a false result.
func Not(r Rule) Rule {
	return func(index int, record *techan.TradingRecord) (bool, error) {
		ok, err := r(index, record)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// FromTechan lifts a techan rule.
func FromTechan(r techan.Rule) Rule {
	return func(index int, record *techan.TradingRecord) (bool, error) {
		return r.IsSatisfied(index, record), nil
	}
}

// Techan adapts r to techan.Rule. Errors are passed to onErr (if set) and the
// rule reports false.
func (r Rule) Techan(onErr func(index int, err error)) techan.Rule {
	return techanRule{rule: r, onErr: onErr}
}

type techanRule struct {
	rule  Rule
	onErr func(index int, err error)
}

func (t techanRule) IsSatisfied(index int, record *techan.TradingRecord) bool {
	ok, err := t.rule(index, record)
	if err != nil {
		if t.onErr != nil {
			t.onErr(index, err)
		}
		return false
	}
	return ok
}

func isOpen(record *techan.TradingRecord) bool {
	return record != nil && record.CurrentPosition().IsOpen()
}
