// Package worker validates independent documents in parallel.
//
// Example usage:
//
//	v, err := validator.New()
//	if err != nil {
//	    return err
//	}
//	bv := worker.NewBatchValidator(v.ValidateBytes, 4)
//
//	jobs := []worker.Job{
//	    worker.NewJob("a.xml", a),
//	    worker.NewJob("b.xml", b),
//	}
//	batch := bv.ValidateBatch(ctx, jobs)
//	for _, r := range batch.Results {
//	    if r.Error != nil {
//	        // Handle error
//	    }
//	    // Process r.Result
//	}
package worker
