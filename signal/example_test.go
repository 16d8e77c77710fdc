package signal_test

import (
	"fmt"

	"github.com/philipp01105/krait/signal"
)

type Job struct {
	ID string
}

var status = signal.NewProperty[Job, string]("status").WithDefault("idle")

func Example() {
	job := &Job{ID: "build-42"}

	sub := status.Subscribe(job, func(j *Job, old, new string) error {
		fmt.Printf("%s: %s -> %s\n", j.ID, old, new)
		return nil
	})

	_ = status.Set(job, "running")
	_ = status.Set(job, "running")
	sub.Unsubscribe()
	_ = status.Set(job, "done")

	fmt.Println(status.MustGet(job))
	// Output:
	// build-42: idle -> running
	// done
}

func ExampleComputed() {
	label := signal.NewComputed("label", func(j *Job) (string, error) {
		return j.ID + ":" + status.MustGet(j), nil
	}).DependsOn(status)

	job := &Job{ID: "deploy"}
	fmt.Println(label.MustGet(job))
	_ = status.Set(job, "running")
	fmt.Println(label.MustGet(job))
	// Output:
	// deploy:idle
	// deploy:running
}
