package order

import "fulfillment/internal/pkg/errs"

// Address is the shipping destination for an order. It is optional until an
// operator supplies one through the update-address command, and may be
// amended any number of times before payment charging begins.
//
// Address is a value object; Merge returns a new value rather than mutating.
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// NewAddress creates a validated Address. Street and city are required;
// country defaults to "USA" when empty.
func NewAddress(street, city, state, zip, country string) (Address, error) {
	if street == "" {
		return Address{}, errs.NewValueIsRequiredError("street")
	}
	if city == "" {
		return Address{}, errs.NewValueIsRequiredError("city")
	}
	if country == "" {
		country = "USA"
	}
	return Address{
		Street:  street,
		City:    city,
		State:   state,
		Zip:     zip,
		Country: country,
	}, nil
}

// Merge overlays other onto the receiver: non-empty fields of other win,
// giving last-write-wins semantics for repeated update-address commands.
func (a Address) Merge(other Address) Address {
	merged := a
	if other.Street != "" {
		merged.Street = other.Street
	}
	if other.City != "" {
		merged.City = other.City
	}
	if other.State != "" {
		merged.State = other.State
	}
	if other.Zip != "" {
		merged.Zip = other.Zip
	}
	if other.Country != "" {
		merged.Country = other.Country
	}
	return merged
}

// IsZero reports whether no address has been supplied yet.
func (a Address) IsZero() bool {
	return a == Address{}
}
