// Package container composes an application's definition graph from import
// declarations before anything is instantiated.
//
// # Overview
//
// A root module declares imports. Each import is one of four kinds:
//
//   - a module, whose own imports are resolved recursively
//   - a component, which becomes a definition directly
//   - a Selector, which computes further import targets at resolution time
//   - a Registrar, which emits terminal definitions programmatically
//
// The Resolver walks these declarations depth-first in declaration order and
// merges every definition it reaches into a Registry. Later definitions with
// an existing name override earlier ones (Lenient, the default) or abort the
// pass (Strict). What happens to the Registry afterwards, construction and
// wiring of live objects, is up to the caller.
//
// # Catalog
//
// Every importable identity is registered once in a Catalog:
//
//	// Spring: @Configuration @Import({DataModule.class, CacheSelector.class})
//	cat := container.NewCatalog()
//	cat.RegisterModule(container.Module{ID: "App", Imports: []string{"Data", "CacheSelector"}})
//	cat.RegisterModule(container.Module{ID: "Data", Imports: []string{"UserRepository"}})
//	cat.RegisterComponent("UserRepository", "*repo.Users")
//
// # Selectors
//
//	// Spring: ImportSelector#selectImports(AnnotationMetadata)
//	cat.RegisterSelector("CacheSelector", container.SelectorFunc(func(s container.Snapshot) ([]string, error) {
//	    if s.Property("CACHE_DRIVER") == "redis" {
//	        return []string{"RedisModule"}, nil
//	    }
//	    return nil, nil
//	}))
//
// # Registrars
//
//	// Spring: ImportBeanDefinitionRegistrar#registerBeanDefinitions
//	cat.RegisterRegistrar("Repos", container.RegistrarFunc(func(s container.Snapshot, sink *container.Sink) error {
//	    sink.Emit("orders", "*repo.Orders")
//	    return nil
//	}))
//
// # Resolving
//
//	r := container.NewResolver(cat,
//	    container.WithPolicy(container.Strict),
//	    container.WithProperties(container.Properties{"CACHE_DRIVER": "redis"}),
//	)
//	res, err := r.Resolve(ctx, "App")
//	if err != nil {
//	    // CycleError, ConflictError, PluginError, ErrCancelled ...
//	}
//	for _, def := range res.Registry.Definitions() {
//	    fmt.Println(def.Name, def.Kind, def.Origin)
//	}
package container
