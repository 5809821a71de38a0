package predict

import "fmt"

// Input is one patient record. Fields are pointers so that a missing field
// is distinguishable from a legitimate zero (sex=0, fbs=0, ca=0 ...).
type Input struct {
	Age      *int     `json:"age" form:"age" binding:"required"`
	Sex      *int     `json:"sex" form:"sex" binding:"required"`
	CP       *int     `json:"cp" form:"cp" binding:"required"`
	Trestbps *int     `json:"trestbps" form:"trestbps" binding:"required"`
	Chol     *int     `json:"chol" form:"chol" binding:"required"`
	FBS      *int     `json:"fbs" form:"fbs" binding:"required"`
	RestECG  *int     `json:"restecg" form:"restecg" binding:"required"`
	Thalach  *int     `json:"thalach" form:"thalach" binding:"required"`
	Exang    *int     `json:"exang" form:"exang" binding:"required"`
	Oldpeak  *float64 `json:"oldpeak" form:"oldpeak" binding:"required"`
	Slope    *int     `json:"slope" form:"slope" binding:"required"`
	CA       *int     `json:"ca" form:"ca" binding:"required"`
	Thal     *int     `json:"thal" form:"thal" binding:"required"`
}

func (in Input) values() (map[string]float64, error) {
	ints := map[string]*int{
		"age":      in.Age,
		"sex":      in.Sex,
		"cp":       in.CP,
		"trestbps": in.Trestbps,
		"chol":     in.Chol,
		"fbs":      in.FBS,
		"restecg":  in.RestECG,
		"thalach":  in.Thalach,
		"exang":    in.Exang,
		"slope":    in.Slope,
		"ca":       in.CA,
		"thal":     in.Thal,
	}

	values := make(map[string]float64, len(Features))
	for name, v := range ints {
		if v == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		values[name] = float64(*v)
	}
	if in.Oldpeak == nil {
		return nil, fmt.Errorf("%w: oldpeak", ErrMissingFeature)
	}
	values["oldpeak"] = *in.Oldpeak

	return values, nil
}
