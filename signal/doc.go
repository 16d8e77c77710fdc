// Package signal implements observable properties.
//
// A Property is declared once for an owner type and then read and
// written through explicit Get and Set calls on *O instances:
//
//	var status = signal.NewProperty[Job, string]("status").WithDefault("idle")
//
//	sub := status.Subscribe(job, func(j *Job, old, new string) error {
//		log.Printf("%s -> %s", old, new)
//		return nil
//	})
//	defer sub.Unsubscribe()
//	_ = status.Set(job, "running")
//
// Per-instance state is keyed by the instance address, so owner types
// must have a non-zero size; NewProperty and NewComputed panic for types
// such as struct{}.
//
// Writes that do not change the value are not observed. Type-wide
// observers registered with SubscribeType run before the observers of
// the written instance.
//
// A Computed property caches a value derived from the instance and is
// invalidated when a property it depends on changes:
//
//	var label = signal.NewComputed("label", func(j *Job) (string, error) {
//		return j.ID + ":" + status.MustGet(j), nil
//	}).DependsOn(status)
//
// Per-instance state is held weakly and released once the instance is
// garbage collected. Observers capturing their instance keep it alive
// until they are unsubscribed.
package signal
