// Package bootstrap runs the service lifecycle: start registered components
// in order, run hooks, print a startup summary, then block on a signal (Run)
// or execute a finite task (RunTask) before shutting down in reverse order.
//
//	app := bootstrap.NewApp(config.ServiceName, version.Version, bootstrap.WithLogger(log))
//	_ = app.RegisterComponent(storageComponent)
//	_ = app.RegisterComponent(serverComponent)
//	if err := app.Run(ctx); err != nil {
//	    log.Error("service failed", logger.ErrorFields("run", err))
//	}
package bootstrap
