package domain

import (
	"fmt"
	"strings"
)

// Category is a crime primary type recognized by the dashboard.
type Category string

// The closed set of crime categories, in display order.
const (
	Theft                    Category = "THEFT"
	Assault                  Category = "ASSAULT"
	SexOffense               Category = "SEX OFFENSE"
	Burglary                 Category = "BURGLARY"
	MotorVehicleTheft        Category = "MOTOR VEHICLE THEFT"
	OffenseInvolvingChildren Category = "OFFENSE INVOLVING CHILDREN"
	CriminalTrespass         Category = "CRIMINAL TRESPASS"
	Robbery                  Category = "ROBBERY"
	CriminalSexualAssault    Category = "CRIMINAL SEXUAL ASSAULT"
	Stalking                 Category = "STALKING"
	Homicide                 Category = "HOMICIDE"
	Kidnapping               Category = "KIDNAPPING"
	DomesticViolence         Category = "DOMESTIC VIOLENCE"
)

// MaxSelectedCategories bounds how many categories one query may filter on.
const MaxSelectedCategories = 5

// CategoryDefinition pairs a category with a plain-language description.
type CategoryDefinition struct {
	Name       Category `json:"name"`
	Definition string   `json:"definition"`
}

var taxonomy = []CategoryDefinition{
	{Theft, "Unlawful taking of property with intent to permanently deprive the owner of it."},
	{Assault, "Intentional causing of apprehension of harmful or offensive contact."},
	{SexOffense, "Non-consensual sexual acts or behaviors, excluding rape."},
	{Burglary, "Unlawful entry into a building with intent to commit a crime."},
	{MotorVehicleTheft, "The theft or attempted theft of a motor vehicle."},
	{OffenseInvolvingChildren, "Criminal offenses involving the welfare of children."},
	{CriminalTrespass, "Unlawful entry onto property without permission."},
	{Robbery, "Taking property from another person by force or threat."},
	{CriminalSexualAssault, "Sexual penetration against another's will by force or threat."},
	{Stalking, "Repeatedly following, harassing, or threatening someone."},
	{Homicide, "The unlawful killing of another person."},
	{Kidnapping, "Unlawful confinement of a person against their will."},
	{DomesticViolence, "Violent or aggressive behavior within the home, typically involving a partner."},
}

// Categories returns every recognized category in display order.
func Categories() []Category {
	out := make([]Category, len(taxonomy))
	for i, d := range taxonomy {
		out[i] = d.Name
	}
	return out
}

// Definitions returns the category definitions in display order.
func Definitions() []CategoryDefinition {
	out := make([]CategoryDefinition, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Valid reports whether c belongs to the taxonomy.
func (c Category) Valid() bool {
	for _, d := range taxonomy {
		if d.Name == c {
			return true
		}
	}
	return false
}

// Definition returns the description of c, or "" for unknown categories.
func (c Category) Definition() string {
	for _, d := range taxonomy {
		if d.Name == c {
			return d.Definition
		}
	}
	return ""
}

// ParseCategory normalizes user input (surrounding space, letter case) and
// checks it against the taxonomy.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown crime category %q", ErrInvalidQuery, s)
	}
	return c, nil
}

// ParseCategories parses a list of labels, preserving order.
func ParseCategories(labels []string) ([]Category, error) {
	out := make([]Category, 0, len(labels))
	for _, l := range labels {
		c, err := ParseCategory(l)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
