// Package params coerces request parameters through typesystem descriptors.
//
// A Set declares the parameters an endpoint accepts. ParseValues reads
// url.Values, where every value is a flat string, and ParseMap reads
// structured input. Both honor the ParamName override, so a descriptor
// declared with dsl.ParamName("location.lat") is read from that key and
// reported under the parameter's own name.
//
//	set := params.Set{
//		{Name: "lat", Type: Latitude, Required: true},
//		{Name: "tags", Type: Tags},
//	}
//	v, err := params.ParseValues(ctx, set, r.URL.Query())
//	var req struct {
//		Lat  float64  `param:"lat"`
//		Tags []string `param:"tags"`
//	}
//	err = params.Bind(v, &req)
package params
