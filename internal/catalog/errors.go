package catalog

import "errors"

// ErrCatalogLoad indicates the risk pattern catalog could not be loaded or
// embedded; the pipeline cannot run without it.
var ErrCatalogLoad = errors.New("cannot load risk pattern catalog")

// ErrVectorLengthMismatch indicates two vectors have different dimensions.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")
