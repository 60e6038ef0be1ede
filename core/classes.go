package core

// Classes is the closed set of classes a student can belong to.
var Classes = []string{"IATIC3", "IATIC4", "IATIC5"}

func IsValidClass(class string) bool {
	for _, c := range Classes {
		if c == class {
			return true
		}
	}
	return false
}
