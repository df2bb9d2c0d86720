package constants_test

import (
	"fmt"
	"strings"

	"github.com/agentstation/parkmerge/pkg/constants"
)

// Example demonstrates the default matching knobs
func Example() {
	total := constants.WeightCoordinates + constants.WeightName + constants.WeightPhone + constants.WeightAddress
	fmt.Printf("tolerance: %g\n", constants.DefaultCoordTolerance)
	fmt.Printf("threshold: %g\n", constants.DefaultMatchThreshold)
	fmt.Printf("total weight: %g\n", total)
	// Output:
	// tolerance: 0.001
	// threshold: 0.5
	// total weight: 8.5
}

// Example_formatting demonstrates the output conventions of merged records
func Example_formatting() {
	tariffs := []string{
		constants.DefaultSourceAName + ": 100 руб/час",
		constants.DefaultSourceBName + ": 120 руб/час",
	}
	fmt.Println(strings.Join(tariffs, constants.TariffSeparator))
	fmt.Printf(constants.ConfidenceFormat+"\n", 0.8571)
	fmt.Printf(constants.RatingMeanFormat+"\n", 4.26)
	// Output:
	// Yandex Maps: 100 руб/час | 2GIS: 120 руб/час
	// 0.86
	// 4.3
}
