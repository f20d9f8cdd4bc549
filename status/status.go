package status

//BatchStatus status of a datagen job or of one of its units
type BatchStatus string

const (
	//STARTING job or unit has been scheduled but not started yet
	STARTING BatchStatus = "STARTING"
	//STARTED job or unit is running
	STARTED BatchStatus = "STARTED"
	//ABANDONED unit was never dispatched because the job was already failing
	ABANDONED BatchStatus = "ABANDONED"
	//COMPLETED job or unit has finished successfully
	COMPLETED BatchStatus = "COMPLETED"
	//FAILED job or unit has failed
	FAILED BatchStatus = "FAILED"
	//UNKNOWN job or unit has aborted due to unknown reason
	UNKNOWN BatchStatus = "UNKNOWN"
)

var statuses = map[BatchStatus]int{
	STARTING:  0,
	STARTED:   1,
	ABANDONED: 2,
	COMPLETED: 3,
	FAILED:    4,
	UNKNOWN:   5,
}

//And folds two statuses into the more severe one
func (s BatchStatus) And(other BatchStatus) BatchStatus {
	i1, ok1 := statuses[s]
	i2, ok2 := statuses[other]
	if !ok1 {
		return other
	}
	if !ok2 || i1 >= i2 {
		return s
	}
	return other
}

//Terminal reports whether no further transition is expected
func (s BatchStatus) Terminal() bool {
	return s == COMPLETED || s == FAILED || s == ABANDONED || s == UNKNOWN
}
