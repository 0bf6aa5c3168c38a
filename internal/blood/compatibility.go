package blood

// recipientsByDonor lists which recipient types each donor type can give to.
var recipientsByDonor = map[string][]string{
	"O-":  {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"A-":  {"A-", "A+", "AB-", "AB+"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B-", "B+", "AB-", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB-", "AB+"},
	"AB+": {"AB+"},
}

// Compatible reports whether a donor of the given type can donate to the
// recipient type. Unknown types are never compatible.
func Compatible(donor, recipient string) bool {
	for _, r := range recipientsByDonor[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}
