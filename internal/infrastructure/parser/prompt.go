package parser

// AnalysisPrompt инструкция модели. Формат FINDING/LOCATION должен совпадать с FindingRegex.
const AnalysisPrompt = `This is a panoramic dental X-ray. Please analyze it as a dentist would, identifying any visible issues or abnormalities. Focus on tooth decay, gum disease, bone loss, impacted teeth, and any other notable findings.

Please provide your analysis in SOAP format:

Subjective: Briefly describe the patient's presenting complaint or reason for the X-ray (if apparent from the image).

Objective: List your observations from the X-ray. For each finding, provide:
1. A brief description of the issue
2. The approximate location using a coordinate system where (0,0) is the top-left corner and (1000,1000) is the bottom-right corner of the image.

Format each finding as follows:
FINDING: [Brief description]
LOCATION: [x1,y1,x2,y2]

Where (x1,y1) is the top-left corner and (x2,y2) is the bottom-right corner of a bounding box around the area of interest.

Assessment: Provide an overall assessment of the patient's dental health based on the X-ray findings.

Plan: Suggest a treatment plan or further actions based on the findings.`
