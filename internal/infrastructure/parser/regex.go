package parser

import "regexp"

// FindingRegex выделяет пару строк "FINDING: ..." / "LOCATION: [x1,y1,x2,y2]".
// Токены чувствительны к регистру, описание может занимать несколько строк.
var FindingRegex = regexp.MustCompile(`(?s)FINDING: (.*?)\nLOCATION: \[(\d+),(\d+),(\d+),(\d+)\]`)
