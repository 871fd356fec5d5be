package domain

import "math"

// NutrientVector holds the macro/micronutrient quantities attached to a food
// quantity. All fields are non-negative; arithmetic is linear and additive.
type NutrientVector struct {
	Calories float64 `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein" json:"protein"`
	Carbs    float64 `bson:"carbs" json:"carbs"`
	Fat      float64 `bson:"fat" json:"fat"`
	Fiber    float64 `bson:"fiber" json:"fiber"`
	Sugar    float64 `bson:"sugar,omitempty" json:"sugar"`
	Sodium   float64 `bson:"sodium,omitempty" json:"sodium"`
}

// Scale multiplies every field by amount/100. Nutrient data is expressed per
// 100 units of the ingredient's natural unit, so Scale(v, 100) is the identity.
func (v NutrientVector) Scale(amount float64) NutrientVector {
	ratio := amount / 100.0
	return NutrientVector{
		Calories: v.Calories * ratio,
		Protein:  v.Protein * ratio,
		Carbs:    v.Carbs * ratio,
		Fat:      v.Fat * ratio,
		Fiber:    v.Fiber * ratio,
		Sugar:    v.Sugar * ratio,
		Sodium:   v.Sodium * ratio,
	}
}

// Add returns the elementwise sum of v and other.
func (v NutrientVector) Add(other NutrientVector) NutrientVector {
	return NutrientVector{
		Calories: v.Calories + other.Calories,
		Protein:  v.Protein + other.Protein,
		Carbs:    v.Carbs + other.Carbs,
		Fat:      v.Fat + other.Fat,
		Fiber:    v.Fiber + other.Fiber,
		Sugar:    v.Sugar + other.Sugar,
		Sodium:   v.Sodium + other.Sodium,
	}
}

// SumNutrients adds vectors elementwise starting from the zero vector.
func SumNutrients(vectors []NutrientVector) NutrientVector {
	var total NutrientVector
	for _, v := range vectors {
		total = total.Add(v)
	}
	return total
}

// IsZero reports whether every field is zero.
func (v NutrientVector) IsZero() bool {
	return v == NutrientVector{}
}

// NonNegative reports whether every field is zero or greater. Vectors taken
// from user input must pass this before entering aggregation.
func (v NutrientVector) NonNegative() bool {
	return v.Calories >= 0 && v.Protein >= 0 && v.Carbs >= 0 &&
		v.Fat >= 0 && v.Fiber >= 0 && v.Sugar >= 0 && v.Sodium >= 0
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Rounded returns a copy with every field rounded to one decimal place.
// Rounding happens only when producing a user-facing response; aggregation
// always runs on unrounded values to avoid compounding error.
func (v NutrientVector) Rounded() NutrientVector {
	return NutrientVector{
		Calories: round1(v.Calories),
		Protein:  round1(v.Protein),
		Carbs:    round1(v.Carbs),
		Fat:      round1(v.Fat),
		Fiber:    round1(v.Fiber),
		Sugar:    round1(v.Sugar),
		Sodium:   round1(v.Sodium),
	}
}

// PercentOf expresses value as a whole-number percentage of dailyValue.
// Callers must guard dailyValue > 0 before calling.
func PercentOf(value, dailyValue float64) int {
	if dailyValue <= 0 {
		return 0
	}
	return int(math.Round(value / dailyValue * 100))
}
