package broken

//fluxgen:delete-all
type Controller struct{}
