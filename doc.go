/*
go-holodetect turns the raw output of a YOLO object detection model running on
a head mounted AR device into stable, world anchored tracked objects.

Inference is spread over several frames by running a bounded number of model
layers per frame, so the host frame loop never stalls.  Once a pass completes
the output tensor is decoded, overlapping boxes are suppressed, each detection
is projected into the world by casting a ray against the environment surface,
and the results are matched to the objects tracked so far.

The root package holds the tensor type and the inference engine interfaces.
See the pipeline, postprocess, spatial and tracker subdirectories for the
pipeline stages and the example subdirectory for usage.
*/
package holodetect
