package operation

// Validate returns the required names that have no usable value in bag,
// in the order they were given. An empty result means the bag is complete.
func Validate(bag Bag, required []string) []string {
	var missing []string
	for _, name := range required {
		if !bag.present(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Check validates bag against spec and returns a *MissingParametersError
// when anything required is absent.
func Check(spec Spec, bag Bag) error {
	required := spec.Required()
	missing := Validate(bag, required)
	if len(missing) == 0 {
		return nil
	}
	return &MissingParametersError{
		OperationID: spec.ID,
		Missing:     missing,
		Required:    required,
	}
}
