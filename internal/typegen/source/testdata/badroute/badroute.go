package badroute

//fluxgen:route 42
type BadRouteController struct{}

//fluxgen:route "a", "b"
type TwoArgsController struct{}

//fluxgen:route missingConst
type UnknownController struct{}
