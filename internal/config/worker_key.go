package config

type WorkerKeyStruct struct {
	PredictionRequestsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PredictionRequestsQueue: "prediction_requests_queue",
}
